package composer

// Canned reply text. Everything the advisor says comes from here; nothing is
// looked up from a live catalog, so prices and features are as of authoring.

var greetings = []string{
	"Hello! I'm your AI product advisor. I can help you find the perfect AI tools for your needs.",
	"Hi there! I'm here to help you discover amazing AI products. What are you looking to accomplish?",
	"Welcome! I specialize in helping people find the right AI tools. How can I assist you today?",
}

var fallbacks = []string{
	"I'm here to help you find the perfect AI tools! Could you tell me more about what you're looking for?",
	"Let me help you discover amazing AI products. What would you like to accomplish?",
	"I'd love to assist you in finding the right AI solution. Can you share more details about your needs?",
}

const apologyText = "I apologize, but I encountered an error. Please try rephrasing your question."

const favoritesNote = "\n\n💡 *Based on your favorites, you might also be interested in similar tools.*"

const clarifyRecommendationText = `I'd be happy to help you find the perfect AI tools! Could you tell me more about what you're looking to accomplish? For example, are you interested in:

• **Writing and content creation**
• **Image and art generation**
• **Coding and development**
• **Productivity and organization**
• **Data analysis and insights**

Let me know your specific needs and I'll provide personalized recommendations!`

const genericRecommendationText = `I can help you find the perfect AI tools! Here are some popular categories to explore:

🤖 **AI Assistants** - ChatGPT, Claude, Bard for conversations and help
🎨 **AI Art** - Midjourney, DALL-E for image generation
💼 **Productivity** - Notion AI, Jasper for work and content
👨‍💻 **Development** - GitHub Copilot, Tabnine for coding

Which area interests you most, or do you have a specific task in mind?`

// categoryTemplates holds the recommendation block per category. Categories
// without an entry get genericRecommendationText.
var categoryTemplates = map[string]string{
	"AI Assistants": `For AI assistants and conversational tools, here are my top recommendations:

**1. ChatGPT Plus ($20/month)**
• Most advanced language model (GPT-4)
• Excellent for complex reasoning and coding
• Custom instructions and plugins

**2. Claude Pro ($20/month)**
• Large context window (200K tokens)
• Great for document analysis
• Strong safety measures

**3. Google Bard (Free)**
• Real-time information access
• Google services integration
• No usage limits

What specific tasks do you want to use an AI assistant for?`,

	"AI Art": `For AI image generation and creative tools, I recommend:

**1. Midjourney ($10/month)**
• Exceptional artistic quality
• Great community and styles
• Perfect for creative projects

**2. DALL-E 2 ($15/month)**
• Realistic image generation
• Precise prompt following
• Commercial usage rights

**3. Adobe Firefly (Creative Cloud)**
• Commercially safe training data
• Adobe ecosystem integration
• Professional workflows

What type of images are you looking to create?`,

	"Development": `For coding and development assistance:

**1. GitHub Copilot ($10/month)**
• Best overall code completion
• Multi-language support
• IDE integration

**2. Tabnine (Free tier available)**
• Privacy-focused options
• Team collaboration features
• Local model options

**3. Amazon CodeWhisperer (Free)**
• AWS integration
• Security scanning
• Real-time suggestions

What programming languages do you work with most?`,

	"Productivity": `For productivity and workflow optimization:

**1. Notion AI ($8/month)**
• Seamless workspace integration
• Content generation and summarization
• Template creation

**2. Microsoft Copilot (Office 365)**
• Full Office suite integration
• Email and document assistance
• Meeting summaries

**3. Zapier AI (Various pricing)**
• Workflow automation
• App integrations
• Natural language setup

What's your main productivity challenge?`,
}

var genericFollowUps = []string{
	"What type of work do you do?",
	"What's your experience level with AI tools?",
	"Do you have any budget constraints?",
}

const comparisonTemplate = `Great question! Comparing %s vs %s:

I can provide a detailed comparison covering:
• **Features and capabilities**
• **Pricing and value**
• **Use cases and strengths**
• **Pros and cons**

Would you like me to break down the comparison, or would you prefer to use our comparison tool to see a side-by-side analysis?`

const clarifyComparisonText = `I'd be happy to help you compare AI tools! To give you the most relevant comparison, could you tell me:

• Which specific tools are you considering?
• What will you primarily use them for?
• What's your budget range?
• Do you need team collaboration features?

You can also use our comparison tool to see detailed feature breakdowns side-by-side!`

const freePricingText = `Here are excellent AI tools with free options:

**Completely Free:**
• **ChatGPT Free** - GPT-3.5 with usage limits
• **Google Bard** - Full access, no limits
• **Bing Chat** - GPT-4 access with Edge

**Generous Free Tiers:**
• **Claude** - Good monthly allowance
• **Hugging Face** - Open source models
• **Stable Diffusion** - Free local install

**Free Trials Worth Trying:**
• **ChatGPT Plus** - 1 week trial
• **Midjourney** - Limited generations

What type of AI functionality are you looking for?`

const budgetPricingText = `Best value AI tools under $15/month:

**Under $10:**
• **Midjourney** ($10/month) - Premium image generation
• **GitHub Copilot** ($10/month) - If you're a developer

**Under $15:**
• **Notion AI** ($8/month) - Productivity powerhouse
• **DALL-E 2** ($15/month) - Realistic images

**Money-Saving Tips:**
• Annual subscriptions often 20% cheaper
• Student discounts available
• Free trials to test before buying

What's your monthly budget range?`

const generalPricingText = `AI tool pricing varies widely based on features and usage:

**Free Tier** - Basic functionality, usage limits
**$8-15/month** - Most consumer tools
**$20-30/month** - Premium features, higher limits
**$50+/month** - Enterprise, unlimited usage

**Factors affecting price:**
• Model quality (GPT-4 vs GPT-3.5)
• Usage limits and quotas
• Commercial usage rights
• Team collaboration features

What's your budget range and primary use case?`
