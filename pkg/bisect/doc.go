/*
Package bisect drives an existing bisection, such as git bisect, with a few extras.

A [Runner] forwards votes to the bisection [Primitive] and asks it for the next revision to test.
Skips can be named using [Runner.NamedSkip], which separates independently caused unresolvable ranges of history from one another.
The records of named skips, as well as the patchsets applied to revisions, are kept in a [Store] inside the git directory.

A [Patchset] is an ordered collection of overlays, such as commits to cherry-pick, active for the revision currently tested.
It is read fresh every time, since it depends on the revision, and turned into arguments for an environment tool using [Patchset.EnvArgs].

A [Loop] repeatedly runs a probe command inside of that environment and interprets its exit code as a vote, following the git bisect run protocol:
  - 0 marks the revision as good
  - 125 skips the revision
  - 128 skips the revision with the name "runner-skip"
  - any other code from 1 to 127 marks the revision as bad
  - everything else terminates the loop without voting
*/
package bisect
