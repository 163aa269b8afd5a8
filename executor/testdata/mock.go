//go:build wasip1

// Echo program for exercising the interpreter host without a real
// interpreter. Build with: GOOS=wasip1 GOARCH=wasm go build -o mock.wasm mock.go
package main

import (
	"bufio"
	"fmt"
	"os"
)

func main() {
	mode := ""
	if len(os.Args) > 2 {
		mode = os.Args[2]
	}

	switch mode {
	case "fail":
		fmt.Println("before")
		fmt.Fprintln(os.Stderr, "boom")
		os.Exit(1)
	case "exit":
		os.Exit(3)
	}

	in := bufio.NewScanner(os.Stdin)
	fmt.Print("Enter name: ")
	if !in.Scan() {
		fmt.Println("no input")
		return
	}
	fmt.Printf("hello %s\n", in.Text())
}
