package internal

// Version is the released version, overridden at build time with
// -ldflags "-X github.com/starford/ansuz/internal.Version=...".
var Version = "0.1.0"
