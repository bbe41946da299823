package orchestrator

import "fmt"

// Canned content. demo* answers demo sessions; offline* answers real sessions
// while the backend is unreachable.

const (
	demoPredict = "[DEMO MODE] Based on simulated telemetry, the student is projected to maintain a stable academic trajectory with a 15% improvement potential in mathematics over the next quarter."
	demoReport  = "[DEMO MODE] Weekly Pulse Report (Simulated):\n- Attendance: Stable at 92%\n- Participation: High in Science, Moderate in Math\n- Behavioral Trends: Improved focus during afternoon sessions.\nNote: This is an artificial summary for demonstration purposes."
	demoTutor   = "[DEMO MODE] Hello! I'm your AI Tutor. Since this is a demo, I'll provide a sample explanation: Photosynthesis is the process by which plants use sunlight to synthesize nutrients from carbon dioxide and water. In the full version, I can solve complex problems and provide personalized learning paths."
)

func demoChat(query string) string {
	return fmt.Sprintf("[DEMO MODE] I am currently operating in a simulated environment. In a live system, I would analyze your school's database to provide real-time insights. Based on your query %q, I would typically look for correlations in attendance and test scores.", query)
}

func demoQuiz(topic, level string) string {
	return lines(
		"Quiz (demo simulation)",
		"Topic: "+topic,
		"Difficulty: "+level,
		"",
		fmt.Sprintf("1) What is the main idea of %s?", topic),
		fmt.Sprintf("2) Give one example and one non-example of %s.", topic),
		fmt.Sprintf("3) List two key terms related to %s and define them.", topic),
		fmt.Sprintf("4) Solve a short practice question about %s.", topic),
		fmt.Sprintf("5) Write a 2–3 sentence summary of %s.", topic),
	)
}

func offlineQuiz(topic, level string) string {
	return lines(
		"Quiz (offline fallback)",
		"Topic: "+topic,
		"Difficulty: "+level,
		"",
		fmt.Sprintf("1) Define the main concept of %s.", topic),
		fmt.Sprintf("2) Give one real-world example of %s.", topic),
		fmt.Sprintf("3) What is a common misconception about %s?", topic),
		fmt.Sprintf("4) Solve a simple problem involving %s (show steps).", topic),
		fmt.Sprintf("5) Write a short summary of what you learned about %s.", topic),
	)
}

func offlineExplain(topic string) string {
	return lines(
		"## Key Idea",
		fmt.Sprintf("AI is temporarily unavailable. Here is a structured fallback for **%s**.", topic),
		"",
		"## Step-by-Step Breakdown",
		"- Identify the goal/problem.",
		"- List known values and constraints.",
		"- Apply the relevant rule/formula.",
		"- Check the result for reasonableness.",
		"",
		"## Definitions",
		fmt.Sprintf("- %s: (add a short definition here)", topic),
		"",
		"## Common Misconceptions",
		"- Confusing definitions vs. examples.",
		"- Skipping units/assumptions.",
		"",
		"## Real-World Analogy",
		fmt.Sprintf("- Relate %s to a familiar everyday process.", topic),
		"",
		"## Worked Example",
		fmt.Sprintf("- Write one small example problem about %s and solve it step-by-step.", topic),
		"",
		"## Summary",
		fmt.Sprintf("- %s is about (one sentence).", topic),
		"- Steps: understand → apply → verify.",
	)
}

func demoNeural(topic, question, grade string) string {
	return lines(
		"## Clarify the Question",
		fmt.Sprintf("Grade %s: %q", grade, question),
		"",
		"## Key Idea",
		fmt.Sprintf("Demo simulation for **%s**.", topic),
		"",
		"## Step-by-Step Resolution",
		"- Restate the question in your own words.",
		"- Identify what you know vs. what you need.",
		"- Solve a simpler version first.",
		"- Generalize back to the original question.",
		"",
		"## Worked Example",
		fmt.Sprintf("- Create a small example about %s and solve it step-by-step.", topic),
	)
}

func offlineNeural(topic, question, grade string) string {
	return lines(
		"## Clarify the Question",
		fmt.Sprintf("Grade %s: You asked: %q", grade, question),
		"",
		"## Key Idea",
		fmt.Sprintf("AI is temporarily unavailable. Here's a guided explanation for **%s**.", topic),
		"",
		"## Step-by-Step Resolution",
		"- Restate what is being asked in your own words.",
		"- Identify what information is missing.",
		"- Solve a simpler version first.",
		"- Build back up to the original question.",
		"",
		"## Definitions",
		"- Define the key terms used in the question.",
		"",
		"## Pitfalls",
		"- Watch for hidden assumptions and unit mistakes.",
		"",
		"## Analogy",
		"- Compare the idea to a real-life situation.",
		"",
		"## Worked Example",
		"- Create a small example and solve it step-by-step.",
		"",
		"## Summary",
		fmt.Sprintf("- One sentence takeaway for %s.", topic),
		"",
		"## Next Questions",
		"- What part feels confusing: the definition, the steps, or the example?",
	)
}

func offlineReport(s Student) string {
	risk := s.RiskLevel
	if risk == "" {
		risk = RiskLow
	}
	return lines(
		"Parent Report (offline fallback)",
		"",
		"Student: "+s.Name,
		fmt.Sprintf("Grade: %d", s.GradeLevel),
		fmt.Sprintf("GPA: %.2f", s.GPA),
		fmt.Sprintf("Attendance: %.1f%%", s.Attendance),
		fmt.Sprintf("Behavior Score: %v/100", s.BehaviorScore),
		"Risk Level: "+risk,
		"",
		"Recommended Focus:",
		"- Maintain consistent study schedule.",
		"- Address attendance gaps early.",
		"- Reinforce positive behaviors with clear routines.",
	)
}

func demoLessonPlan(topic, grade string) string {
	return lines(
		"# Lesson Plan (demo simulation): "+topic,
		"",
		"## Grade",
		grade,
		"",
		"## Objectives",
		fmt.Sprintf("- Define key terms related to %s.", topic),
		"- Practice one guided example.",
		"- Complete a short exit ticket.",
		"",
		"## Activities",
		"- Intro (5 min): warm-up question",
		"- Guided practice (15 min): 1–2 examples",
		"- Independent practice (15 min): short worksheet",
		"- Assessment (5 min): exit ticket",
	)
}

func offlineLessonPlan(topic, grade string) string {
	return lines(
		"# Lesson Plan: "+topic,
		"",
		"## Grade",
		grade,
		"",
		"## Objectives",
		fmt.Sprintf("- Define key terms related to %s.", topic),
		fmt.Sprintf("- Solve one basic problem using %s.", topic),
		"- Explain the concept in their own words.",
		"",
		"## Materials",
		"- Whiteboard / slides",
		"- Practice worksheet",
		"- Exit ticket",
		"",
		"## Activities",
		"### Intro (5–10 min)",
		fmt.Sprintf("- Quick hook question related to %s.", topic),
		"",
		"### Guided Practice (15–20 min)",
		"- Work through 1–2 examples as a class.",
		"",
		"### Independent Practice (15–20 min)",
		"- Students complete short exercises.",
		"",
		"## Differentiation",
		"- Provide hints/steps for learners who need support.",
		"- Provide challenge questions for advanced learners.",
		"",
		"## Assessment",
		"- Exit ticket: one question + one sentence summary.",
	)
}

func syllabusWeeks(topic, grade string, n int, demo bool) []SyllabusWeek {
	out := make([]SyllabusWeek, n)
	for i := range out {
		w := SyllabusWeek{
			Week:     i + 1,
			Topic:    fmt.Sprintf("%s - Week %d", topic, i+1),
			Details:  fmt.Sprintf("Grade %s: core concept focus and guided practice.", grade),
			Activity: fmt.Sprintf("Mini project %d", i+1),
		}
		if demo {
			w.Topic = fmt.Sprintf("%s - Demo Week %d", topic, i+1)
			w.Details = fmt.Sprintf("Grade %s: demo outline and practice set.", grade)
			w.Activity = fmt.Sprintf("Demo activity %d", i+1)
		}
		out[i] = w
	}
	return out
}

func flashcards(topic string, n int, demo bool) []Flashcard {
	out := make([]Flashcard, n)
	for i := range out {
		def := fmt.Sprintf("Definition placeholder for %s term %d.", topic, i+1)
		if demo {
			def = fmt.Sprintf("Demo definition for %s term %d.", topic, i+1)
		}
		out[i] = Flashcard{Term: fmt.Sprintf("%s Term %d", topic, i+1), Def: def}
	}
	return out
}

func quizItems(topic string, n int, demo bool) []QuizItem {
	out := make([]QuizItem, n)
	for i := range out {
		it := QuizItem{
			Q:       fmt.Sprintf("%s: question %d", topic, i+1),
			Options: []string{"Option A", "Option B", "Option C", "Option D"},
		}
		if demo {
			it.Q = fmt.Sprintf("%s: demo question %d", topic, i+1)
			it.Correct = i % 4
		}
		out[i] = it
	}
	return out
}
