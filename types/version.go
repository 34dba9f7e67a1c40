package types

// Version is the canonical project version.
// The CLI and the session trace format share this version; trace files
// record the version that wrote them.
const Version = "0.2.0"
