// Package book maintains aggregated price-level state per instrument.
//
// Each side keeps an ordered map from price to absolute resting size. Updates
// replace the size at a price (they are not deltas); a level set to zero stays
// in the map but never counts as the best price.
package book
