package gemini

const maxPromptText = 8000

func buildTextPrompt(pageText string) string {
	runes := []rune(pageText)
	if len(runes) > maxPromptText {
		pageText = string(runes[:maxPromptText])
	}

	return `以下のウェブサイトテキストから、提供されている全てのメニュー情報を抽出してください。
アレルギー対応と明記されていなくても、商品と思われるものは全てリストアップしてください。

抽出対象:
- 飲食店で提供されている全てのフード、ドリンク、スイーツメニュー
- 卵・乳・小麦不使用のメニュー
- 「アレルギー対応」と明記されたメニュー
- 低アレルゲンメニュー

JSON形式で出力:
[
  {
    "name": "メニュー名",
    "price": 数値（不明なら0）,
    "description": "説明",
    "safe_from": ["小麦", "卵"]
  }
]

該当メニューがない場合は [] を返してください。

テキスト:
` + pageText
}

func buildVisionPrompt() string {
	return `この画像を分析してください。

【タスク】
飲食店で提供される「完成された料理メニュー」のみを抽出してください。
メニューボードやアレルゲン一覧表が写っている場合は、その記載内容を優先してください。

【除外対象（絶対に出力しないこと）】
- 店内の雰囲気、内装、外観
- 影、植物、装飾品
- 調理中のシーン（作っている様子）
- 未調理の食材（袋に入った小麦粉、砂糖など）
- 人物
- パッケージされたお土産品（袋に入ったクッキーなど）

【出力形式】
メニュー（完成した料理）が見つかった場合のみ、以下のJSON形式で出力。
見つからない場合は空配列 [] を出力。

[
  {
    "name": "料理名（「影」「様子」等は禁止）",
    "price": 数値(不明なら0),
    "description": "見た目の特徴",
    "allergen_info": "アレルギー表示があれば記載"
  }
]
JSONのみ出力してください。他言無用。`
}
