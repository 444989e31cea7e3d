// Package dircopy copies, moves and removes directory trees.
//
// Copies preserve the tree shape, regular file contents, symbolic links,
// permission bits (including setuid/setgid/sticky) and modification times,
// so a managed program can be re-executed from a restored tree.
package dircopy
