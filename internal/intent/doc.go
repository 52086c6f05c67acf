// Package intent defines the messages exchanged with the assistant's
// intent engine: the classified request envelope a skill consumes and the
// response it publishes back to the client.
package intent
