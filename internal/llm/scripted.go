package llm

import (
	"context"
	"fmt"
	"sync"
)

// ScriptedService replays canned responses per role. It backs --mock mode and tests.
type ScriptedService struct {
	mu        sync.Mutex
	responses map[string][]string
	calls     map[string]int
	requests  []Request
}

// NewScriptedService creates a service that cycles through responses for each role.
func NewScriptedService(responses map[string][]string) *ScriptedService {
	return &ScriptedService{
		responses: responses,
		calls:     make(map[string]int),
	}
}

// Complete returns the next scripted response for req.Role.
func (s *ScriptedService) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", classify("scripted completion", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req)
	script := s.responses[req.Role]
	if len(script) == 0 {
		return "", &FatalError{Message: fmt.Sprintf("no scripted response for role %q", req.Role)}
	}
	n := s.calls[req.Role]
	s.calls[req.Role] = n + 1
	return script[n%len(script)], nil
}

// Requests returns every request received so far.
func (s *ScriptedService) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// DefaultScript returns a plausible interview script for offline runs.
func DefaultScript() map[string][]string {
	return map[string][]string{
		"interviewer": {
			`{"question": "Welcome! To start, walk me through a recent project you are proud of.", "context": "Opening question to calibrate experience", "difficulty": "easy", "expectedLevelOfDetail": "2-3 minutes overview", "hints": ["Mention your role", "Mention the impact"]}`,
			`{"question": "How would you design a rate limiter for a public API?", "context": "Probe system design fundamentals", "difficulty": "medium", "expectedLevelOfDetail": "Algorithms, storage, trade-offs", "hints": ["Token bucket", "Distributed counters"]}`,
			`{"question": "Tell me about a production incident you debugged. What was the root cause?", "context": "Assess problem solving under pressure", "difficulty": "medium", "expectedLevelOfDetail": "Timeline and lessons learned", "hints": ["Observability", "Postmortem"]}`,
		},
		"evaluator": {
			`{"score": 72, "scoreBreakdown": {"technicalKnowledge": 30, "problemSolving": 18, "systemDesign": 12, "communication": 8, "awareness": 4}, "strengths": ["Clear communication", "Solid language fundamentals"], "areasForImprovement": ["System design depth", "Quantifying impact"], "recommendation": "maybe", "feedback": "Good foundation; practice structured design interviews."}`,
		},
		"coach": {
			`{"weakness": "System design depth", "impact": "Design rounds carry heavy weight at mid-level and above", "learningPath": ["Day 1-3: Review scalability basics", "Day 4-7: Practice two design problems per day", "Day 8-10: Mock interview with feedback"], "resources": [{"type": "book", "title": "Designing Data-Intensive Applications", "url": "https://dataintensive.net", "duration": "2 weeks", "difficulty": "intermediate"}, {"type": "practice", "title": "System design drills", "url": "https://github.com/donnemartin/system-design-primer", "duration": "10 days", "difficulty": "intermediate"}], "nextCheckpoint": "Retake a design-focused mock interview in 10 days", "motivation": "You already communicate well; structure will make it shine."}`,
		},
	}
}
