// Package detectors holds the registry of named identifier patterns
// (emails, domains, addresses, phone numbers, IMEIs and a user wordlist) and
// compiles them for either the text or the byte alphabet.
//
// The registry is an immutable value: build it once with Default, narrow it
// with Select, extend it with WithWordlist, then Compile it for the alphabet
// of the scan.
package detectors
