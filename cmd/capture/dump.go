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

package capture

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/octopoint/go-dsu/pkg/command"
	"github.com/octopoint/go-dsu/pkg/config"
)

func NewDumpCommand() *cobra.Command {
	var raw bool
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "dump [path]",
		Short: "Print recorded packets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfg.CapturePath
			if len(args) > 0 {
				path = args[0]
			}
			if path == "" {
				return errors.New("Capture path is not set. Pass it as an argument or set capture_path in the config")
			}
			return command.DumpCapture(path, !raw, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print records without decoding packets")
	return cmd
}
