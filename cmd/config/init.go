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

package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/octopoint/go-dsu/pkg/config"
)

func NewInitCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.NewDefaultConfig()
			if err := cfg.Persist(force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", cfg.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config file")
	return cmd
}
