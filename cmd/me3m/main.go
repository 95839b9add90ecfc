// Command me3m manages mods and profiles for the ME3 mod loader.
package main

func main() {
	Execute()
}
