// Package bridge is the generic command-invocation boundary between the deck
// client and the native backend.
//
// The client side sees a single contract, Invoker: a command name, JSON-able
// arguments and an optional result target. The backend registers handlers on
// a Router. Two transports connect them:
//
//   - Local: in-process dispatch, used when the backend is embedded in the
//     client binary and in tests.
//   - gRPC: a single unary method, /taurisky.bridge.Bridge/Invoke, carrying
//     google.protobuf.Struct payloads {command, args} -> {result}.
//
// # Errors
//
// Every failure that crosses the bridge is flattened into a *CommandError
// whose Error() is the backend message verbatim. Callers display it as is;
// transport failures additionally unwrap to ErrUnavailable.
package bridge
