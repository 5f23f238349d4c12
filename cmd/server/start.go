/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package server

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/octopoint/go-dsu/pkg/command"
	"github.com/octopoint/go-dsu/pkg/config"
)

const (
	IPOptionName            = "ip"
	PortOptionName          = "port"
	ClientTimeoutOptionName = "client-timeout"
	CaptureOptionName       = "capture"
)

func NewStartCommand() *cobra.Command {
	var ip, clientTimeout, capturePath string
	var port int
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start DSU server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ip != "" {
				cfg.IP = ip
			}
			if port != 0 {
				cfg.Port = port
			}
			if clientTimeout != "" {
				cfg.ClientTimeout = clientTimeout
			}
			if capturePath != "" {
				cfg.CapturePath = capturePath
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return command.StartServer(cfg)
		},
	}
	cmd.Flags().StringVar(&ip, IPOptionName, "", fmt.Sprintf("IP to bind. E.g. %s", config.DefaultIP))
	cmd.Flags().IntVar(&port, PortOptionName, 0, fmt.Sprintf("UDP port to bind. E.g. %d", config.DefaultPort))
	cmd.Flags().StringVar(&clientTimeout, ClientTimeoutOptionName, "",
		fmt.Sprintf("How long a client registration stays valid. E.g. %s", config.DefaultClientTimeout))
	cmd.Flags().StringVar(&capturePath, CaptureOptionName, "", "Path to the database where to record all packets")

	return cmd
}
