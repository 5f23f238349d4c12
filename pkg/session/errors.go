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

package session

import (
	"fmt"

	"github.com/octopoint/go-dsu/pkg/layers"
)

// ErrInvalidRegistration is returned for pad data requests that subscribe
// to a slot or a MAC this server does not report
type ErrInvalidRegistration struct {
	Flags layers.RegistrationFlags
	Slot  uint8
	MAC   [6]byte
}

func (e ErrInvalidRegistration) Error() string {
	return fmt.Sprintf("Registration filtered out: flags: %#02x slot: %d mac: % x", uint8(e.Flags), e.Slot, e.MAC[:])
}
