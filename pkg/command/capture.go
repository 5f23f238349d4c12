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
	"fmt"
	"io"

	"github.com/google/gopacket"

	"github.com/octopoint/go-dsu/pkg/capture"
	"github.com/octopoint/go-dsu/pkg/layers"
)

// DumpCapture prints every recorded packet. With decode set the packets
// are decoded layer by layer, otherwise the records are printed as yaml.
func DumpCapture(path string, decode bool, w io.Writer) error {
	recorder, err := capture.Open(path)
	if err != nil {
		return err
	}
	defer recorder.Close()

	records, err := recorder.All()
	if err != nil {
		return err
	}
	for _, record := range records {
		if !decode {
			fmt.Fprint(w, record.String())
			continue
		}
		packet := gopacket.NewPacket(record.Data, layers.DSULayerType, gopacket.Default)
		fmt.Fprintf(w, "--- #%d %s %s %s\n%s", record.Seq, record.Timestamp.Format("15:04:05.000000"),
			record.Direction, record.Addr, packet.String())
	}
	return nil
}
