package checkin

// Topic names a lifestyle dimension a check-in can assess.
type Topic string

const (
	TopicSleep        Topic = "sleep"
	TopicHydration    Topic = "hydration"
	TopicFood         Topic = "food"
	TopicCaffeine     Topic = "caffeine"
	TopicSugar        Topic = "sugar"
	TopicRest         Topic = "rest"
	TopicHygiene      Topic = "hygiene"
	TopicStrain       Topic = "strain"
	TopicClothing     Topic = "clothing"
	TopicEyes         Topic = "eyes"
	TopicTemperature  Topic = "temperature"
	TopicLighting     Topic = "lighting"
	TopicSound        Topic = "sound"
	TopicSocialising  Topic = "socialising"
	TopicOutdoors     Topic = "outdoors"
	TopicSpace        Topic = "space"
	TopicScreenTime   Topic = "screenTime"
	TopicTension      Topic = "tension"
	TopicBreathing    Topic = "breathing"
	TopicMentalBusy   Topic = "mentalBusy"
	TopicTaskLoad     Topic = "taskLoad"
	TopicMentalBreak  Topic = "mentalBreak"
	TopicFocus        Topic = "focus"
	TopicAvoidance    Topic = "avoidance"
	TopicMotivation   Topic = "motivation"
	TopicSelfCheckIn  Topic = "selfCheckIn"
	TopicSelfKindness Topic = "selfKindness"
	TopicAuthenticity Topic = "authenticity"
)

const (
	flaggedSummary = "This area may need attention."
	neutralSummary = "This area seems okay today."
)

type topicInfo struct {
	display  string
	positive string
}

var topicOrder = []Topic{
	TopicSleep, TopicHydration, TopicFood, TopicCaffeine, TopicSugar,
	TopicRest, TopicHygiene, TopicStrain, TopicClothing,
	TopicEyes, TopicTemperature, TopicLighting, TopicSound,
	TopicSocialising, TopicOutdoors, TopicSpace, TopicScreenTime,
	TopicTension, TopicBreathing,
	TopicMentalBusy, TopicTaskLoad, TopicMentalBreak,
	TopicFocus, TopicAvoidance, TopicMotivation,
	TopicSelfCheckIn, TopicSelfKindness, TopicAuthenticity,
}

var topics = map[Topic]topicInfo{
	TopicSleep:        {"Sleep", "You're well-rested today."},
	TopicHydration:    {"Hydration", "You're staying hydrated."},
	TopicFood:         {"Food", "You've nourished yourself well."},
	TopicCaffeine:     {"Caffeine", "Your caffeine intake seems balanced."},
	TopicSugar:        {"Sugar", "Your sugar levels are in check."},
	TopicRest:         {"Rest", "You've given yourself time to rest."},
	TopicHygiene:      {"Hygiene", "You've taken care of your hygiene."},
	TopicStrain:       {"Strain", "Your body feels free of strain."},
	TopicClothing:     {"Clothing", "Your clothing feels comfortable."},
	TopicEyes:         {"Eyes", "Your eyes feel fine today."},
	TopicTemperature:  {"Temperature", "The temperature feels just right."},
	TopicLighting:     {"Lighting", "Lighting isn't bothering you."},
	TopicSound:        {"Sound", "Sounds around you feel manageable."},
	TopicSocialising:  {"Socialising", "You've had meaningful social contact."},
	TopicOutdoors:     {"Outdoors", "You've spent time outdoors."},
	TopicSpace:        {"Space", "Your space feels tidy and calm."},
	TopicScreenTime:   {"Screen Time", "Your screen time feels balanced."},
	TopicTension:      {"Tension", "Your body feels relaxed."},
	TopicBreathing:    {"Breathing", "Your breathing feels steady."},
	TopicMentalBusy:   {"Mental Calmness", "Your mind feels calm and focused."},
	TopicTaskLoad:     {"Task Load", "You're managing your tasks well."},
	TopicMentalBreak:  {"Mental Break", "You've taken mental breaks."},
	TopicFocus:        {"Focus", "You're able to concentrate clearly."},
	TopicAvoidance:    {"Avoidance", "You're facing things head-on."},
	TopicMotivation:   {"Motivation", "You're feeling motivated."},
	TopicSelfCheckIn:  {"Self Check-In", "You've checked in with yourself."},
	TopicSelfKindness: {"Self-Kindness", "You're being kind to yourself."},
	TopicAuthenticity: {"Authenticity", "You're staying true to your needs."},
}

// AllTopics returns every topic in catalog order.
func AllTopics() []Topic {
	return append([]Topic(nil), topicOrder...)
}

// ParseTopic maps a raw identifier onto the closed topic set.
func ParseTopic(s string) (Topic, bool) {
	t := Topic(s)
	return t, t.Valid()
}

func (t Topic) Valid() bool {
	_, ok := topics[t]
	return ok
}

// DisplayName is the human label; unknown topics render as their raw value.
func (t Topic) DisplayName() string {
	if info, ok := topics[t]; ok {
		return info.display
	}
	return string(t)
}

func (t Topic) PositiveSummary() string {
	if info, ok := topics[t]; ok {
		return info.positive
	}
	return ""
}

func (t Topic) FlaggedSummary() string { return flaggedSummary }

func (t Topic) NeutralSummary() string { return neutralSummary }

// Summary returns the sentence shown for the topic under the given category.
func (t Topic) Summary(c Category) string {
	switch c {
	case CategoryPositive:
		return t.PositiveSummary()
	case CategoryNeutral:
		return t.NeutralSummary()
	default:
		return t.FlaggedSummary()
	}
}
