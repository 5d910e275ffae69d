// Command picvault is the operator CLI for a running picvaultd daemon.
package main
