// Package snapshot stores named copies of the game server's working
// directory.
//
// Layout on disk:
//
//	<snapshots_dir>/
//	  backup-2024-05-01-10-00-00/   one directory per snapshot
//	  pre-restore-2024-05-02-09-30-12/
//	  .partial-XXXX/                in-progress create, swept on startup
//	<staging_dir>/
//	  .worldsnap-restore-XXXX/      in-progress restore, always removed
//
// No metadata is kept beyond the directory name and its modification time.
//
// Restore replaces the working directory in three steps:
//
//  1. Copy the snapshot into a fresh staging directory.
//  2. Rename the current working directory aside into staging.
//  3. Rename the staged copy into place, renaming the old tree back if
//     this step fails.
//
// The Store never checks whether the game server is running. Callers
// must stop it first.
package snapshot
