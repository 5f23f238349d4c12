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

// Package motion drives the motion publisher on a fixed cadence.
// Rotation pushed between two ticks is summed up and published at once,
// a tick without any rotation publishes a zero vector with the current buttons.
package motion

import (
	"context"
	"sync"
	"time"

	"github.com/octopoint/go-dsu/pkg/layers"
	"github.com/octopoint/go-dsu/pkg/log"
)

// Sample is the data the motion source hands over on every tick
type Sample struct {
	Rotation layers.Vector3 `json:"rotation"`
	Left     bool           `json:"left"`
	Right    bool           `json:"right"`
}

type Publisher interface {
	Publish(sample Sample) bool
}

type Driver struct {
	mu        sync.Mutex
	pending   layers.Vector3
	left      bool
	right     bool
	interval  time.Duration
	publisher Publisher
}

func NewDriver(publisher Publisher, interval time.Duration) *Driver {
	return &Driver{
		interval:  interval,
		publisher: publisher,
	}
}

// Push adds the rotation to the pending one and replaces the button state
func (d *Driver) Push(sample Sample) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = d.pending.Add(sample.Rotation)
	d.left = sample.Left
	d.right = sample.Right
}

// Tick publishes pending rotation and the current buttons
func (d *Driver) Tick() bool {
	d.mu.Lock()
	sample := Sample{Rotation: d.pending, Left: d.left, Right: d.right}
	d.pending = layers.Vector3{}
	d.mu.Unlock()
	return d.publisher.Publish(sample)
}

func (d *Driver) Run(ctx context.Context) {
	log.Debug("Starting motion driver with interval %s", d.interval)
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Tick()
		}
	}
}
