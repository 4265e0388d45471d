package hooks

import (
	"net"

	"github.com/google/uuid"

	"github.com/masterstream/masterstream/internal/externalcmd"
	"github.com/masterstream/masterstream/internal/logger"
)

// OnConnectParams are the parameters of OnConnect.
type OnConnectParams struct {
	Logger              logger.Writer
	ExternalCmdPool     *externalcmd.Pool
	RunOnConnect        string
	RunOnConnectRestart bool
	RunOnDisconnect     string
	RTMPAddress         string
	ID                  uuid.UUID
}

// OnConnect is the OnConnect hook.
func OnConnect(params OnConnectParams) func() {
	var env externalcmd.Environment
	var onConnectCmd *externalcmd.Cmd

	if params.RunOnConnect != "" || params.RunOnDisconnect != "" {
		_, port, _ := net.SplitHostPort(params.RTMPAddress)
		env = externalcmd.Environment{
			"RTMP_PORT":    port,
			"MSTR_CONN_ID": params.ID.String(),
		}
	}

	if params.RunOnConnect != "" {
		params.Logger.Log(logger.Info, "runOnConnect command started")

		onConnectCmd = externalcmd.NewCmd(
			params.ExternalCmdPool,
			params.RunOnConnect,
			params.RunOnConnectRestart,
			env,
			func(err error) {
				params.Logger.Log(logger.Info, "runOnConnect command exited: %v", err)
			})
	}

	return func() {
		if onConnectCmd != nil {
			onConnectCmd.Close()
			params.Logger.Log(logger.Info, "runOnConnect command stopped")
		}

		if params.RunOnDisconnect != "" {
			params.Logger.Log(logger.Info, "runOnDisconnect command launched")
			externalcmd.NewCmd(
				params.ExternalCmdPool,
				params.RunOnDisconnect,
				false,
				env,
				nil)
		}
	}
}
