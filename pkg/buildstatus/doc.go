/*
Package buildstatus determines the status of a nix build as lazily as possible, in a format suitable for bisection.

A status query resolves a target to a derivation using [ResolveTarget] and classifies it with [Classify].
The dependencies of the derivation are checked first, so a broken dependency results in a [DependencyFailure] without the target itself ever being built.
Only if all dependencies build, the target is built, resulting in either [Success], [Failure] or [FailureWithoutLine],
depending on whether the build log contains the failure line of the [Config].

Every build attempted during a query is booked against a [RebuildBudget]. Once the budget is exhausted,
the query is classified as [ResourceLimit], overriding anything determined up to that point.

The classification is turned into an [Action] using an [ActionTable], which is then delegated to a [Bisection].
*/
package buildstatus
