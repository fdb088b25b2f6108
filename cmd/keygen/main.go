// Command keygen prints a fresh TWO_FACTOR_MASTER_KEY value.
package main

import (
	"fmt"
	"os"

	"github.com/enrollhub/twofa/pkg/secrets"
)

func main() {
	key, err := secrets.GenerateMasterKey()
	if err != nil {
		fmt.Fprintf(os.Stderr, "keygen: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("TWO_FACTOR_MASTER_KEY=%s\n", key)
}
