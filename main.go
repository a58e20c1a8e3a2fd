// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/mxdock/mxdock/cmd/mxdock"

func main() {
	cmd.Execute()
}
