// internal/assessment/prompt.go
package assessment

// IgnoreArtifactsPrompt is the shared instruction block appended to every
// assessor's system prompt so extraction noise never counts against a chunk.
const IgnoreArtifactsPrompt = `Ignore these extraction artifacts (do not penalize or extract):
- Author bylines, bios, avatars (e.g., "Written by...")
- Timestamps/dates ("Published", "Updated on", "Last modified")
- Share button text ("FacebookTwitterLinkedIn", "Share this article"), social widgets
- Engagement metrics (view counts, read time, likes)
- Navigation (menus, breadcrumbs, category tags, "Skip to content")
- Footer content (copyright, privacy/terms)
- CTAs (newsletter signups, subscribe forms, contact forms)
- Related content ("You may also like", recommended posts)
- Decorative media (hero images, author photos)`
