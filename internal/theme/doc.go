// Package theme provides CSS theming for the waveline bars and menus: an
// embedded default stylesheet, user overrides from the config directory with
// @import inlining, and hot reload.
package theme
