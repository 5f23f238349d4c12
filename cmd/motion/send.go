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

package motion

import (
	"github.com/spf13/cobra"

	"github.com/octopoint/go-dsu/pkg/command"
	"github.com/octopoint/go-dsu/pkg/config"
	"github.com/octopoint/go-dsu/pkg/layers"
	pkgmotion "github.com/octopoint/go-dsu/pkg/motion"
)

func NewSendCommand() *cobra.Command {
	var x, y, z float32
	var left, right bool
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a rotation and the action buttons state",
		Example: `
Rotate by 1.5 around X with the left action button held
# go-dsu motion send --x 1.5 --left
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			return apiClient.SendMotion(pkgmotion.Sample{
				Rotation: layers.Vector3{X: x, Y: y, Z: z},
				Left:     left,
				Right:    right,
			})
		},
	}
	cmd.Flags().Float32Var(&x, "x", 0, "Rotation around X")
	cmd.Flags().Float32Var(&y, "y", 0, "Rotation around Y")
	cmd.Flags().Float32Var(&z, "z", 0, "Rotation around Z")
	cmd.Flags().BoolVar(&left, "left", false, "Left action button is down")
	cmd.Flags().BoolVar(&right, "right", false, "Right action button is down")
	return cmd
}
