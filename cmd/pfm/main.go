package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	root, st := newRootCmd(nil)
	err := root.ExecuteContext(context.Background())
	if cerr := st.close(); cerr != nil {
		fmt.Fprintln(os.Stderr, "close:", cerr)
	}
	if err != nil {
		os.Exit(1)
	}
}
