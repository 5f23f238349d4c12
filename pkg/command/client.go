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
	"errors"
	"fmt"

	"github.com/imroc/req"

	"github.com/octopoint/go-dsu/pkg/config"
	"github.com/octopoint/go-dsu/pkg/motion"
	"github.com/octopoint/go-dsu/pkg/session"
	"github.com/octopoint/go-dsu/pkg/srv/dsu"
)

type ApiClient struct {
	*config.Config
	ApiPrefix string
}

func NewApiClient(cfg *config.Config) *ApiClient {
	return &ApiClient{
		Config:    cfg,
		ApiPrefix: fmt.Sprintf("http://%s/api", cfg.ApiAddr()),
	}
}

func (c *ApiClient) url(path string) string {
	return fmt.Sprintf("%s/%s", c.ApiPrefix, path)
}

// Status requests the state of the running server
func (c *ApiClient) Status() (*dsu.Status, error) {
	r, err := req.Get(c.url("status"))
	if err != nil {
		return nil, err
	}
	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}
	status := &dsu.Status{}
	err = r.ToJSON(status)
	if err != nil {
		return nil, err
	}
	return status, nil
}

// Session requests the registered client
func (c *ApiClient) Session() (*session.Snapshot, error) {
	r, err := req.Get(c.url("session"))
	if err != nil {
		return nil, err
	}
	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}
	snap := &session.Snapshot{}
	err = r.ToJSON(snap)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// SendMotion pushes a sample to the motion driver of the running server
func (c *ApiClient) SendMotion(sample motion.Sample) error {
	r, err := req.Post(c.url("motion"), req.BodyJSON(&sample))
	if err != nil {
		return err
	}
	if r.Response().StatusCode != 200 {
		return errors.New(r.Response().Status)
	}
	return nil
}
