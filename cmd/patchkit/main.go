// Command patchkit caches game asset trees and packs them into
// distribution archives.
package main

func main() {
	Execute()
}
