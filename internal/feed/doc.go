// Package feed turns decoded IEX DEEP records into engine messages.
//
// Records arrive as JSON objects, one per line (file) or frame (relay):
//
//	{"type":"price_level_update","symbol":"AAPL","side":"B","price":172.45,"size":100,"timestamp":"2022-08-01T13:30:00.000123+00:00"}
//	{"type":"trade_report","symbol":"AAPL","price":172.46,"size":50,"timestamp":"2022-08-01T13:30:00.000456+00:00"}
//
// Sources yield raw records; the Decoder reads the envelope first, applies
// the instrument filter, and only then parses the typed body. Prices are
// converted to ticks exactly, never through a float.
package feed
