// Package shell implements the output/surface lifecycle manager and the
// menu state machine: it tracks which displays exist, owns the bar and menu
// layer surfaces created for them, reconciles them against configuration
// changes, and coordinates the single globally-exclusive popup menu.
package shell
