// Package cli implements the cipherkeeper command-line client on top of
// cobra.
//
// Commands
//
//	register              create an account
//	login                 open a session and unlock the vault once
//	logout                end the session and forget it locally
//	whoami                show the stored session
//	list [--reveal]       list entries; --reveal decrypts passwords
//	add                   encrypt and store a credential
//	delete <id>           remove an entry
//
// The session token, user and encryption salt are kept in a session file
// between runs. The master password is prompted for whenever a command needs
// the key and is never stored.
package cli
