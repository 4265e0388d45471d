package hooks

import (
	"net"

	"github.com/google/uuid"

	"github.com/masterstream/masterstream/internal/externalcmd"
	"github.com/masterstream/masterstream/internal/logger"
)

// OnReadParams are the parameters of OnRead.
type OnReadParams struct {
	Logger           logger.Writer
	ExternalCmdPool  *externalcmd.Pool
	RunOnRead        string
	RunOnReadRestart bool
	RunOnUnread      string
	RTMPAddress      string
	ID               uuid.UUID
	App              string
	StreamKey        string
	Query            string
}

// OnRead is the OnRead hook.
func OnRead(params OnReadParams) func() {
	var env externalcmd.Environment
	var onReadCmd *externalcmd.Cmd

	if params.RunOnRead != "" || params.RunOnUnread != "" {
		_, port, _ := net.SplitHostPort(params.RTMPAddress)
		env = externalcmd.Environment{
			"RTMP_PORT":       port,
			"MSTR_CONN_ID":    params.ID.String(),
			"MSTR_APP":        params.App,
			"MSTR_STREAM_KEY": params.StreamKey,
			"MSTR_PATH":       params.App + "/" + params.StreamKey,
			"MSTR_QUERY":      params.Query,
		}
	}

	if params.RunOnRead != "" {
		params.Logger.Log(logger.Info, "runOnRead command started")

		onReadCmd = externalcmd.NewCmd(
			params.ExternalCmdPool,
			params.RunOnRead,
			params.RunOnReadRestart,
			env,
			func(err error) {
				params.Logger.Log(logger.Info, "runOnRead command exited: %v", err)
			})
	}

	return func() {
		if onReadCmd != nil {
			onReadCmd.Close()
			params.Logger.Log(logger.Info, "runOnRead command stopped")
		}

		if params.RunOnUnread != "" {
			params.Logger.Log(logger.Info, "runOnUnread command launched")
			externalcmd.NewCmd(
				params.ExternalCmdPool,
				params.RunOnUnread,
				false,
				env,
				nil)
		}
	}
}
