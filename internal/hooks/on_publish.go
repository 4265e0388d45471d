package hooks

import (
	"net"

	"github.com/google/uuid"

	"github.com/masterstream/masterstream/internal/externalcmd"
	"github.com/masterstream/masterstream/internal/logger"
)

// OnPublishParams are the parameters of OnPublish.
type OnPublishParams struct {
	Logger              logger.Writer
	ExternalCmdPool     *externalcmd.Pool
	RunOnPublish        string
	RunOnPublishRestart bool
	RunOnUnpublish      string
	RTMPAddress         string
	ID                  uuid.UUID
	App                 string
	StreamKey           string
	Query               string
}

// OnPublish is the OnPublish hook.
func OnPublish(params OnPublishParams) func() {
	var env externalcmd.Environment
	var onPublishCmd *externalcmd.Cmd

	if params.RunOnPublish != "" || params.RunOnUnpublish != "" {
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

	if params.RunOnPublish != "" {
		params.Logger.Log(logger.Info, "runOnPublish command started")

		onPublishCmd = externalcmd.NewCmd(
			params.ExternalCmdPool,
			params.RunOnPublish,
			params.RunOnPublishRestart,
			env,
			func(err error) {
				params.Logger.Log(logger.Info, "runOnPublish command exited: %v", err)
			})
	}

	return func() {
		if onPublishCmd != nil {
			onPublishCmd.Close()
			params.Logger.Log(logger.Info, "runOnPublish command stopped")
		}

		if params.RunOnUnpublish != "" {
			params.Logger.Log(logger.Info, "runOnUnpublish command launched")
			externalcmd.NewCmd(
				params.ExternalCmdPool,
				params.RunOnUnpublish,
				false,
				env,
				nil)
		}
	}
}
