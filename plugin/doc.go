// Package plugin attaches extension objects to a host view-model.
//
// A Plugin mirrors its owner's lifecycle: when the owner initializes,
// activates, deactivates or disposes, every attached plugin is driven
// through the matching transition. The Host subscribes to the owner's
// lifecycle tokens and fans the transitions out in attach order
// (reverse order on the way down).
//
// Plugins attached after a transition already happened are caught up:
// attaching to an initialized owner initializes the plugin immediately,
// attaching to an active owner also activates it.
package plugin
