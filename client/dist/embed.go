package clientdist

import _ "embed"

// NitroJS is the browser client. It reports navigations over the scroll
// channel, answers scroll restorations and, in hash mode, fetches pages
// from the fragment endpoint.
//
// It is served by the framework at "/_nitro/client.js".
//go:embed nitro.js
var NitroJS []byte
