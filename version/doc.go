// Package version reports the build version of seqkit binaries.
//
// Version, git commit, branch, and build time are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/seqkit/version.Version=1.2.0" ./cmd/seqplan
//
// Values left unset are filled from the VCS stamp the Go toolchain embeds.
package version
