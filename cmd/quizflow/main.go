package main

import "quizflow-backend/cmd/quizflow/cmd"

func main() {
	cmd.Execute()
}
