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

package command

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/octopoint/go-dsu/pkg/config"
	"github.com/octopoint/go-dsu/pkg/srv/dsu"
)

// StartServer runs the DSU server until it gets interrupted
func StartServer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := dsu.NewDSUServer(ctx, cfg)
	if err != nil {
		return err
	}
	return s.Run()
}
