// Package identity manages the widget's anonymous session identifier.
//
// The identifier is a random UUID (version 4) created the first time a
// profile runs the widget and stored under SessionKey in the durable
// key/value scope. Every later run reuses it until the scope is cleared.
//
// There is no error path. If the scope is missing or broken, the identifier
// is generated anyway and kept in memory for the life of the Store; a
// warning is logged and Degraded reports true.
package identity
