// Package merge implements one-way reconciliation of a source directory
// tree into a destination tree.
//
// Files present only in the source are copied into the destination. Files
// present in both trees are compared by content digest: identical files are
// skipped, divergent files are copied into an inspection tree under a
// digest-suffixed name so neither variant is lost. The destination is never
// overwritten.
//
// The walk enumerates regular files only. Symlinks, devices, sockets, and
// FIFOs are skipped and logged at debug level; empty directories are not
// reproduced in the destination.
package merge
