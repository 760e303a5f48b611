// Package machine models factory machine definitions: the provider/model
// specific adapters that generate media for order items.
//
// A Definition names a provider (fal, replicate, civitai), the provider's model
// reference, the media type it produces, the cost of one run and the default
// parameters sent with every request.
//
// Parameters are validated by four layers of rules, each refining the previous
// one:
//
//	base      prompt, negative_prompt
//	media     image: width/height/num_images, video: duration/fps/aspect_ratio, audio: duration
//	provider  fal, replicate and civitai specific knobs
//	model     the definition's own rules
//
// A rule in a later layer replaces the rule with the same name from an earlier
// layer. Parameters without a rule are rejected.
package machine
