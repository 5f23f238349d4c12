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
	"encoding/binary"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
	"sigs.k8s.io/yaml"

	"github.com/octopoint/go-dsu/pkg/log"
)

const (
	BucketName = "packets"
)

type Direction string

const (
	Inbound  Direction = "in"
	Outbound Direction = "out"
)

type Record struct {
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Direction Direction `json:"direction"`
	Addr      string    `json:"addr"`
	Data      []byte    `json:"data"`
}

func (r *Record) String() string {
	result, err := yaml.Marshal(r)
	if err != nil {
		log.Info("Error occured while marshaling capture record, %s", err)
		return ""
	}
	return fmt.Sprintf("---\n%s", string(result))
}

// Recorder stores every packet the server receives or sends. It is a diagnostic
// tool, the server never reads the records back.
type Recorder struct {
	DB *bbolt.DB
}

func Open(path string) (*Recorder, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	// losing the tail of a capture on a crash is fine, an fsync per packet is not
	db.NoSync = true
	if err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BucketName))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &Recorder{DB: db}, nil
}

func (r *Recorder) Close() error {
	if err := r.DB.Sync(); err != nil {
		log.Warning("Error while syncing capture database: %s", err)
	}
	return r.DB.Close()
}

func uint64ToByte(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// Record appends a packet to the capture
func (r *Recorder) Record(direction Direction, addr string, data []byte, ts time.Time) error {
	return r.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketName))
		if b == nil {
			return fmt.Errorf("Bucket not found: %s", BucketName)
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		record := &Record{
			Seq:       seq,
			Timestamp: ts,
			Direction: direction,
			Addr:      addr,
			Data:      data,
		}
		recordBytes, err := yaml.Marshal(record)
		if err != nil {
			return err
		}
		return b.Put(uint64ToByte(seq), recordBytes)
	})
}

// All returns the records in the order they were captured
func (r *Recorder) All() ([]*Record, error) {
	var records []*Record
	if err := r.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketName))
		if b == nil {
			return fmt.Errorf("Bucket not found: %s", BucketName)
		}
		return b.ForEach(func(_, v []byte) error {
			record := &Record{}
			if err := yaml.Unmarshal(v, record); err != nil {
				log.Error("Error while unmarshalling capture record %s", err)
				return err
			}
			records = append(records, record)
			return nil
		})
	}); err != nil {
		return nil, err
	}
	return records, nil
}
