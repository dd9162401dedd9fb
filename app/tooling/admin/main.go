// This program performs administrative tasks against a node's block storage.
package main

import "github.com/ardanlabs/powchain/app/tooling/admin/cmd"

func main() {
	cmd.Execute()
}
