// This program provides the platform operator a command line tool for the
// administrative endpoints of the platform service.
package main

import "github.com/dermacoin/platform/app/tooling/admin/cmd"

func main() {
	cmd.Execute()
}
