// Command mudra serves the gesture recognition and translation web interface.
package main

func main() {
	Execute()
}
