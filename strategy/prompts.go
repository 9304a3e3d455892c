package strategy

const trainExample = "A train leaves New York for Boston, 200 miles away, at 3:00 PM. " +
	"Another train leaves Boston for New York at the same time. " +
	"The first train travels at 60 mph, and the second train travels at 80 mph. " +
	"At what time do the two trains pass each other?"

const trainReasoning = "The approach speed is 60 + 80 = 140 mph. " +
	"So, the two trains will meet in 200 / 140 = 1.43 hours. " +
	"Since the first train left at 3:00 PM, the two trains will meet at 3:00 PM + 1.43 hours = 4:26 PM."

const solvePrompt = "Solve the given word problem. Respond in the following format:\n\n" +
	"```\n<Your step-by-step reasoning>\n#### <Your final answer in succinct form>\n```\n\n" +
	"For example, suppose the word problem is this:\n```\n" + trainExample + "\n```\n\n" +
	"Your reply could be this:\n```\n" + trainReasoning + "\n#### 4:00 PM\n```\n"

const answerOnlyPrompt = "Solve the given word problem. Respond in the following format:\n\n" +
	"```\n<Your final answer in succinct form>\n```\n\n" +
	"For example, suppose the word problem is this:\n```\n" + trainExample + "\n```\n\n" +
	"Your reply could be this:\n```\n4:00 PM\n```\n"

const selfReflectPrompt = "Solve the given word problem.\n" +
	"First, find an initial answer with step-by-step reasoning.\n" +
	"Then, critique the answer. Do not try to solve the problem again. " +
	"Simply check the correctness of each step of the initial answer.\n" +
	"Lastly, heed your own critique and provide an improved answer.\n\n" +
	"Respond in the following format:\n\n```\n" +
	"Initial answer: <Your step-by-step reasoning>\n" +
	"#### <Your initial answer in succinct form>\n" +
	"Critique: <Check the correctness of each step in the initial answer>\n" +
	"Revised answer: <Your revised step-by-step reasoning>\n" +
	"#### <Your final answer in succinct form>\n```\n\n" +
	"For example, suppose the word problem is this:\n```\n" + trainExample + "\n```\n\n" +
	"Your reply could be this:\n```\n" +
	"Initial answer: " + trainReasoning + "\n#### 4:00 PM\n" +
	"Critique: The answer is correct, but the reasoning is not clear.\n" +
	"Revised answer: " + trainReasoning + "\n#### 4:00 PM\n```\n"

const critiquePrompt = "Critique the answer for a question. Analyze its correctness, clarity, and completeness.\n\n" +
	"The format of the input looks like this:\n\n```\n" +
	"Question: <The question>\n" +
	"Answer: <The reasoning for the answer>\n" +
	"#### <The final answer>\n```\n"

const revisePrompt = "Given a question, an answer, and a critique on the answer, revise the answer.\n" +
	"Heed the critique and provide an improved answer.\n\n" +
	"The format of the input looks like this:\n```\n" +
	"Question: <The question>\n" +
	"Answer: <The reasoning for the answer>\n" +
	"#### <The final answer>\n" +
	"Critique: <The critique>\n```\n\n" +
	"Your reply should be in the following format:\n```\n" +
	"<Your revised reasoning>\n" +
	"#### <Your revised final answer>\n```\n"

const perspectivesPrompt = "Solve the given word problem.\n" +
	"Find 3 different perspectives to solve the problem.\n" +
	"For each perspective, solve the problem independently.\n" +
	"Then, analyze all 3 solution candidates.\n" +
	"Reproduce a new solution from parts of the 3 solutions that are consistent among them.\n\n" +
	"Respond in the following format:\n\n```\n" +
	"Solution candidate 1: <Your first independent attempt, step-by-step reasoning>\n" +
	"#### <Your first answer in succinct form>\n" +
	"Solution candidate 2: <Your second independent attempt, step-by-step reasoning>\n" +
	"#### <Your second answer in succinct form>\n" +
	"Solution candidate 3: <Your third independent attempt, step-by-step reasoning>\n" +
	"#### <Your third answer in succinct form>\n" +
	"Final answer: <your step-by-step reasoning from the analysis of the 3 candidates above>\n" +
	"#### <Your final answer in succinct form>\n```\n\n" +
	"For example, suppose the word problem is this:\n```\n" + trainExample + "\n```\n\n" +
	"Your reply could be this:\n```\n" +
	"Solution candidate 1: " + trainReasoning + "\n#### 4:00 PM\n" +
	"Solution candidate 2: The first train will travel 60 mph for 1 hour, and the second train will travel 80 mph for 1 hour. " +
	"So, the two trains will meet at 4:00 PM.\n#### 4:00 PM\n" +
	"Solution candidate 3: The first train will travel 60 mph for 2 hours, and the second train will travel 80 mph for 1.5 hours. " +
	"So, the two trains will meet at 4:00 PM.\n#### 4:00 PM\n" +
	"Final answer: The three solutions are consistent. The answer is 4:00 PM.\n#### 4:00 PM\n```\n"

const candidatePrompt = "Solve the given word problem.\n\n" +
	"Respond in the following format:\n\n```\n" +
	"Solution: <with your step-by-step reasoning>\n" +
	"#### <Your answer in succinct form>\n```\n\n" +
	"For example, suppose the word problem is this:\n```\n" + trainExample + "\n```\n\n" +
	"Your reply could be this:\n```\nSolution: " + trainReasoning + "\n#### 4:00 PM\n```\n"

const reconcilePrompt = "You are given three solution candidates to a question.\n" +
	"Reproduce a new solution from parts of the 3 solutions that are consistent among them.\n"

const threeSolversPrompt = "You are a team of three word-problem solvers: Alice, Bob and Carol.\n" +
	"You will each take turns solving a word problem.\n" +
	"Alice goes first. She solves the problem and passes it to Bob.\n" +
	"Bob will evaluate Alice's solution, then finds a different perspective to the problem, " +
	"and solve the problem using the new perspective.\n" +
	"Bob passes the problem to Carol.\n" +
	"Carol will evaluate both Alice's and Bob's solutions, then finds a third perspective to the problem, " +
	"and solve the problem using the new perspective.\n" +
	"Now, you have 3 solution candidates to the problem.\n" +
	"These solutions may have errors.\n" +
	"Identify the parts of these solutions that are consistent among them.\n" +
	"Then, formulate a final solution from the consistent parts of the 3 solutions.\n\n" +
	"Respond in the following format:\n\n```\n" +
	"Alice: <Alice's first step-by-step reasoning>\n" +
	"#### <Alice's answer in succinct form>\n" +
	"Bob: <Bob's analysis of Alice's solution. His new perspective and the new reasoning from that.>\n" +
	"#### <Bob's answer in succinct form>\n" +
	"Carol: <Carol's analysis of Alice's and Bob's solutions. Her new perspective and the new reasoning from that.>\n" +
	"#### <Carol's answer in succinct form>\n" +
	"Consistency analysis: <Identify the consistent parts of the 3 solutions>\n" +
	"#### <The final answer in succinct form>\n```\n\n" +
	"For example, suppose the word problem is this:\n```\n" + trainExample + "\n```\n\n" +
	"Your reply could be this:\n```\n" +
	"Alice: " + trainReasoning + "\n#### 4:00 PM\n" +
	"Bob: Alice's solution is correct. The two trains will meet at 4:00 PM.\n#### 4:00 PM\n" +
	"Carol: Alice and Bob are correct. The two trains will meet at 4:00 PM.\n#### 4:00 PM\n" +
	"Consistency analysis: The three solutions are consistent. The answer is 4:00 PM.\n#### 4:00 PM\n```\n"
