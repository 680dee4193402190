package main

import "github.com/goplus/rdbuild/cmd/rdbuild/internal"

func main() {
	internal.Execute()
}
