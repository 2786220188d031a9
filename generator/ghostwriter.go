package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/linkpilot-ai/linkpilot/domains/content"
	"github.com/linkpilot-ai/linkpilot/domains/user"
	pkgError "github.com/linkpilot-ai/linkpilot/pkg/error"
	"github.com/linkpilot-ai/linkpilot/pkg/htmltext"
	"github.com/sirupsen/logrus"
)

const (
	styleExampleLimit = 5
	maxPostChars      = 2500
)

const postSystemPromptTemplate = `You are a ghostwriter. Write a LinkedIn post for this person.

VOICE PROFILE:
%s

THEIR PAST POSTS (for style reference — match the voice, do NOT copy content):
%s

RULES:
- Match their exact tone, sentence length, and structure patterns
- Use their vocabulary and phrasing style
- Follow their typical post structure (see post_structures in the profile)
- No hashtag spam (max 2-3 relevant hashtags, only if they typically use them)
- No corporate buzzwords unless they use them
- Keep it under %d characters
- Output ONLY the post text, nothing else — no preamble, no explanation`

const commentSystemPromptTemplate = `You are a LinkedIn engagement strategist. Your job is to write a thoughtful, personalized comment on someone else's LinkedIn post.

VOICE PROFILE OF THE COMMENTER:
%s

RULES:
- Write in the commenter's natural voice and tone (see voice profile above)
- Be genuinely insightful — add value, share a perspective, or ask a thoughtful question
- Reference specific points from the post to show you actually read it
- Keep it concise (2-4 sentences, max 300 characters)
- NO generic comments like "Great post!" or "Thanks for sharing!"
- NO self-promotion or links
- Be authentic and conversational, not sycophantic
- Match the energy and formality level of the original post
- Output ONLY the comment text, nothing else`

const personaSystemPrompt = `You are a writing-style analyst. Given a person's LinkedIn posts, produce a voice profile as a single JSON object with these keys:
- "tone": overall tone (e.g. "direct and informal")
- "sentence_length": typical sentence length pattern
- "vocabulary": characteristic words and phrases (array)
- "post_structures": recurring structural patterns, e.g. hook/story/lesson (array)
- "emoji_usage": how and how often emoji appear
- "hashtag_usage": how hashtags are used, if at all

RULES:
- Base every field strictly on the posts given, never on assumptions
- Output ONLY the JSON object, no markdown fences, no commentary`

const researchSystemPromptTemplate = `You are a LinkedIn content researcher. Analyze the recent posts of the creator "%s" and produce a short research digest for someone who wants to engage with them.

COVER:
- The topics they post about most
- Their posting style and what performs for them
- 2-3 concrete angles the reader could use to add value in their comments

RULES:
- Base everything on the posts given, never invent facts about the creator
- Keep it under 300 words
- Output ONLY the digest text, nothing else`

// Ghostwriter produces in-voice drafts: full posts saved as drafts and short
// comments on other people's posts.
type Ghostwriter struct {
	registry *Registry
	users    user.IUserRepository
	repo     content.IContentRepository
}

func NewGhostwriter(registry *Registry, users user.IUserRepository, repo content.IContentRepository) *Ghostwriter {
	return &Ghostwriter{registry: registry, users: users, repo: repo}
}

// GeneratePost writes a post in the user's voice and saves it as a draft.
func (g *Ghostwriter) GeneratePost(ctx context.Context, userID, prompt, providerName string) (content.Item, error) {
	owner, err := g.users.GetByID(ctx, userID)
	if err != nil {
		return content.Item{}, err
	}
	if strings.TrimSpace(owner.VoiceProfile) == "" {
		return content.Item{}, pkgError.ValidationError("user has no voice profile, complete onboarding first")
	}

	provider, err := g.registry.Get(providerName)
	if err != nil {
		return content.Item{}, err
	}

	examples, err := g.styleExamples(ctx, userID)
	if err != nil {
		logrus.WithError(err).Warnf("[GENERATOR] could not load style examples for user %s", userID)
	}

	system := fmt.Sprintf(postSystemPromptTemplate, owner.VoiceProfile, examples, maxPostChars)
	body, err := provider.Complete(ctx, system, "Write a LinkedIn post about: "+prompt)
	if err != nil {
		return content.Item{}, fmt.Errorf("generation failed: %w", err)
	}

	item := content.Item{
		UserID: userID,
		Prompt: prompt,
		Body:   strings.TrimSpace(body),
		Status: content.StatusDraft,
	}
	if err := g.repo.Create(ctx, &item); err != nil {
		return content.Item{}, err
	}

	logrus.Infof("[GENERATOR] draft %s created for user %s via %s", item.ID, userID, provider.Name())
	return item, nil
}

// GenerateComment derives a short in-voice comment for someone else's post.
// targetHTML may be raw post markup; it is reduced to plain text first.
func (g *Ghostwriter) GenerateComment(ctx context.Context, userID, targetAuthor, targetHTML, providerName string) (string, error) {
	owner, err := g.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	provider, err := g.registry.Get(providerName)
	if err != nil {
		return "", err
	}

	voice := strings.TrimSpace(owner.VoiceProfile)
	if voice == "" {
		voice = "No voice profile available — use a professional, conversational tone."
	}

	postText := htmltext.Extract(targetHTML)
	if postText == "" {
		return "", pkgError.ValidationError("target post has no readable text")
	}

	system := fmt.Sprintf(commentSystemPromptTemplate, voice)
	userPrompt := fmt.Sprintf("Write a comment on this LinkedIn post by %s:\n\n%s", targetAuthor, postText)

	comment, err := provider.Complete(ctx, system, userPrompt)
	if err != nil {
		return "", fmt.Errorf("comment generation failed: %w", err)
	}
	return strings.TrimSpace(comment), nil
}

// AnalyzeVoice derives a voice-profile JSON blob from a sample of the user's
// own posts. The caller owns fetching the samples and persisting the result.
func (g *Ghostwriter) AnalyzeVoice(ctx context.Context, userID string, posts []string, providerName string) (string, error) {
	if len(posts) == 0 {
		return "", pkgError.ValidationError("no posts available to analyze")
	}

	provider, err := g.registry.Get(providerName)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i, post := range posts {
		fmt.Fprintf(&b, "\n--- Post %d ---\n%s\n", i+1, post)
	}

	raw, err := provider.Complete(ctx, personaSystemPrompt, "Analyze these LinkedIn posts:\n"+b.String())
	if err != nil {
		return "", fmt.Errorf("voice analysis failed: %w", err)
	}

	profile := stripCodeFences(raw)
	if !json.Valid([]byte(profile)) {
		return "", fmt.Errorf("voice analysis returned invalid profile")
	}

	logrus.Infof("[GENERATOR] voice profile built for user %s via %s", userID, provider.Name())
	return profile, nil
}

// ResearchCreator digests a followed creator's recent posts. postsHTML may be
// raw markup; each entry is reduced to plain text first.
func (g *Ghostwriter) ResearchCreator(ctx context.Context, userID, creator string, postsHTML []string, providerName string) (string, error) {
	provider, err := g.registry.Get(providerName)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	n := 0
	for _, html := range postsHTML {
		text := htmltext.Extract(html)
		if text == "" {
			continue
		}
		n++
		fmt.Fprintf(&b, "\n--- Post %d ---\n%s\n", n, text)
	}
	if n == 0 {
		return "", pkgError.ValidationError("creator posts have no readable text")
	}

	system := fmt.Sprintf(researchSystemPromptTemplate, creator)
	digest, err := provider.Complete(ctx, system, "Analyze these posts:\n"+b.String())
	if err != nil {
		return "", fmt.Errorf("creator research failed: %w", err)
	}

	logrus.Infof("[GENERATOR] research digest on %s built for user %s via %s", creator, userID, provider.Name())
	return strings.TrimSpace(digest), nil
}

// stripCodeFences unwraps a ```json ... ``` block some providers insist on.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// styleExamples renders the user's most recent published posts as a numbered
// block for the ghostwriter prompt.
func (g *Ghostwriter) styleExamples(ctx context.Context, userID string) (string, error) {
	published, err := g.repo.ListByUser(ctx, userID, content.StatusPublished)
	if err != nil {
		return "", err
	}
	if len(published) > styleExampleLimit {
		published = published[:styleExampleLimit]
	}

	var b strings.Builder
	for i, item := range published {
		fmt.Fprintf(&b, "\n--- Example %d ---\n%s\n", i+1, item.Body)
	}
	return b.String(), nil
}
