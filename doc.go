/*
Package docoverlay provides CLI tooling to publish upstream documentation into a workspace.

Upstream docs are kept in a read-only mirror and exposed in the workspace docs directory,
either as links to the mirror or as locally owned copies. Paths may be customized to take
ownership of their content, and uncustomized to go back to the mirrored version once no
local change would be lost.
*/
package docoverlay
