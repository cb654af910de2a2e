package intent

// #region keywords

var emotionalKeywords = []string{
	"i feel", "feeling", "feel trapped", "feel lost",
	"sad", "lonely", "anxious", "depressed", "overwhelmed",
	"stressed", "stress", "tired of everything", "burnt out", "burned out",
	"breakup", "hurt", "scared", "afraid", "worried", "hopeless",
	"mann nahi", "udaas", "pareshan", "thak gaya", "thak gayi",
}

var explanatoryKeywords = []string{
	"explain", "samjhao", "samjha do", "kaise hota", "kyon hota",
	"meaning of", "difference between", "in simple words",
}

var factualPrefixes = []string{
	"who is", "what is", "where is", "when did", "when was",
	"how many", "how much", "how old", "how far", "capital of",
	"kaun hai", "kya hai", "kab hua",
}

// #endregion

// #region theme-markers

var themeLostMarkers = []string{
	"lost", "directionless", "no direction", "stuck", "drifting",
	"don't know what to do", "dont know what to do", "raasta nahi",
}

var themeAnxiousMarkers = []string{
	"anxious", "anxiety", "nervous", "on edge", "restless", "ghabrahat",
}

var themeDrainedMarkers = []string{
	"drained", "exhausted", "no energy", "empty", "worn out",
	"thaka hua", "khaali",
}

var themePressuredMarkers = []string{
	"pressure", "too much", "burden", "stretched", "expectations",
	"demands", "deadlines", "bhaar", "dabav",
}

var themeFamilyMarkers = []string{
	"parents", "parent", "family", "comparing me", "comparison",
	"disappoint", "disappointing", "gharwale", "mata", "pita",
	"मां", "पिता", "माता", "परिवार",
}

// #endregion

// #region signal-markers

var overwhelmMarkers = []string{
	"spiral", "spiralling", "spiraling", "racing", "mind racing",
	"can't switch off", "cant switch off", "panic", "overwhelmed",
	"too much at once", "on edge", "overthinking", "noisy mind",
	"dimag nonstop",
}

var guiltMarkers = []string{
	"guilt", "guilty", "shame", "ashamed", "failure", "i am failing",
	"i'm failing", "falling behind", "wasting time", "khud ko doshi",
}

var resignationMarkers = []string{
	"what's the point", "whats the point", "no point", "pointless",
	"give up", "giving up", "why bother", "nothing will change",
	"it never gets better", "kya faayda", "kuch nahi badlega",
}

var actionRequestMarkers = []string{
	"what can i do", "one small thing", "something small",
	"help me start", "where do i start", "a first step", "one step",
}

var timeboxMarkers = []string{
	"right now", "today", "tonight", "next five minutes",
	"next 5 minutes", "in this moment", "abhi",
}

// #endregion

// #region hinglish-markers

// hinglishMarkers promote an English request to the internal hinglish
// language when romanized Hindi appears in the prompt.
var hinglishMarkers = []string{
	"yaar", "nahi", "nahin", "bahut", "mujhe", "mera", "meri",
	"kya", "kyun", "kaise", "thoda", "accha", "acha", "matlab",
	"dil", "mann", "zindagi", "pareshan", "tension ho raha",
}

// #endregion
