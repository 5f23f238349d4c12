//go:build windows

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

package dsu

import (
	"errors"
	"net"
	"unsafe"

	"golang.org/x/sys/windows"
)

// sioUDPConnReset is SIO_UDP_CONNRESET: IOC_IN | IOC_VENDOR | 12
const sioUDPConnReset uint32 = 0x80000000 | 0x18000000 | 12

// disableConnReset stops Windows from failing the next read with WSAECONNRESET
// every time an ICMP port unreachable comes back for a report we sent
func disableConnReset(conn *net.UDPConn) error {
	rawConn, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var ioctlErr error
	err = rawConn.Control(func(fd uintptr) {
		enable := uint32(0)
		returned := uint32(0)
		ioctlErr = windows.WSAIoctl(windows.Handle(fd), sioUDPConnReset,
			(*byte)(unsafe.Pointer(&enable)), uint32(unsafe.Sizeof(enable)),
			nil, 0, &returned, nil, 0)
	})
	if err != nil {
		return err
	}
	return ioctlErr
}

func isConnReset(err error) bool {
	return errors.Is(err, windows.WSAECONNRESET)
}
