package session

// Natural transition phrases spoken by the host when a listener raises a
// hand. Varied so interruptions feel like a real classroom.
var handRaiseTransitions = []string{
	"Oh, looks like we have a question! Let's pause here.",
	"Hold on—someone wants to jump in. Go ahead!",
	"I see a hand up. What's on your mind?",
	"Wait, we've got a question. Let's hear it.",
	"Ah, someone has something to ask. Please, go ahead.",
	"Let's stop here for a moment—there's a question.",
	"One second—looks like someone wants to chime in.",
	"I think we have a question brewing. What is it?",
	"Before we continue, let's take this question.",
	"Interesting timing—someone has a question. Yes?",
	"Let me pause—we've got a curious mind here.",
	"Oh! A question already. I love it. What's up?",
}

// Phrases used when the question isn't clear enough to answer.
var clarificationPrompts = []string{
	"Hmm, I want to make sure I understand. Could you elaborate a bit?",
	"Interesting question! Can you be more specific about what part you mean?",
	"I think I get it, but could you clarify what exactly you're asking about?",
	"Good question—but help me understand: which aspect are you curious about?",
	"Let me make sure I'm on the same page. What specifically do you want to know?",
	"That's a broad topic. Can you narrow down what you'd like me to explain?",
}

// Phrases used to bridge back into the podcast after Q&A.
var resumeTransitions = []string{
	"Great question! Now, back to where we were.",
	"Alright, hopefully that clears things up. Let's continue.",
	"Good stuff. Now, moving on...",
	"Thanks for asking! So, as I was saying...",
	"Excellent. With that answered, let's get back on track.",
	"Hope that helps! Now, let's pick up where we left off.",
}
