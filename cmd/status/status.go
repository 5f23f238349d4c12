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

package status

import (
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/octopoint/go-dsu/pkg/command"
	"github.com/octopoint/go-dsu/pkg/config"
)

func NewCommand() *cobra.Command {
	var sessionOnly bool
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of the running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			var v interface{}
			var err error
			if sessionOnly {
				v, err = apiClient.Session()
			} else {
				v, err = apiClient.Status()
			}
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(v)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().BoolVar(&sessionOnly, "session", false, "Show only the registered client")
	return cmd
}
